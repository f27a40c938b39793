// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/barneyhill/helm2smiles/internal/assembly"
	"github.com/barneyhill/helm2smiles/internal/container"
	"github.com/barneyhill/helm2smiles/internal/convert"
	"github.com/barneyhill/helm2smiles/internal/helm"
	"github.com/barneyhill/helm2smiles/internal/logging"
	"github.com/barneyhill/helm2smiles/internal/monomer"
	"github.com/barneyhill/helm2smiles/internal/toolkit"
	"github.com/barneyhill/helm2smiles/pkg/types"
)

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	renderer, err := newRenderer(ctx, cfg)
	if err != nil {
		return err
	}

	conv := convert.New[*helm.Notation](helm.Parser{}, renderer,
		convert.WithLogger(logger),
		convert.WithMaxLineBytes(cfg.MaxLineBytes),
	)
	sum, err := conv.ConvertFile(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if sum.HasFailures() {
		logger.Warn("some lines could not be converted",
			zap.Int("failed", sum.Failed), zap.Int("lines", sum.Lines))
	}
	return nil
}

// newRenderer builds the renderer selected by cfg.Backend.
func newRenderer(ctx context.Context, cfg types.Config) (convert.Renderer[*helm.Notation], error) {
	switch cfg.Backend {
	case types.BackendContainer:
		if cfg.Container.Image == "" {
			return nil, errors.New("the container backend needs an image (--image or container.image)")
		}
		rt, err := container.Select(ctx, cfg.Container.Runtime)
		if err != nil {
			return nil, err
		}
		r := toolkit.New(rt, cfg.Container.Image, cfg.Container.Args...).WithContext(ctx)
		if err := r.Check(ctx); err != nil {
			return nil, err
		}
		logger.Info("rendering with toolkit container",
			zap.String("runtime", rt.Name()), zap.String("image", cfg.Container.Image))
		return r, nil
	default:
		lib, err := loadLibrary(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Debug("monomer library loaded", zap.Int("monomers", lib.Len()))
		return assembly.New(lib), nil
	}
}

// loadLibrary returns the built-in library with the configured monomer file
// and then the monomer database merged over it.
func loadLibrary(ctx context.Context, cfg types.Config) (*monomer.Library, error) {
	lib, err := monomer.Default()
	if err != nil {
		return nil, err
	}

	if cfg.Monomers != "" {
		extra, err := monomer.LoadFile(cfg.Monomers)
		if err != nil {
			return nil, err
		}
		lib.Merge(extra)
	}

	if cfg.MonomerDB != "" {
		if _, err := os.Stat(cfg.MonomerDB); err != nil {
			return nil, fmt.Errorf("monomer database: %w", err)
		}
		store, err := monomer.OpenStore(cfg.MonomerDB)
		if err != nil {
			return nil, fmt.Errorf("monomer database %s: %w", cfg.MonomerDB, err)
		}
		defer store.Close()

		stored, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("monomer database %s: %w", cfg.MonomerDB, err)
		}
		lib.Merge(stored)
	}
	return lib, nil
}

func newLogger(cfg types.Config, w io.Writer) (*zap.Logger, error) {
	l, err := logging.New(cfg.Log.Level, cfg.Log.Format, w)
	if err != nil {
		return nil, fmt.Errorf("configuring diagnostics: %w", err)
	}
	return l, nil
}
