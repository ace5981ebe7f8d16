/*
Command heifloader decodes HEIF/HEIC images through the engine loader and
writes the resulting RGBA buffer as PNG or BMP.
*/
package main

import (
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"

	"github.com/spaghettifunk/heifloader/engine"
	"github.com/spaghettifunk/heifloader/engine/core"
	"github.com/spaghettifunk/heifloader/engine/heif"
	"github.com/spaghettifunk/heifloader/engine/heif/libheif"
	"github.com/spaghettifunk/heifloader/engine/renderer/metadata"
)

var (
	configPath string
	opts       = engine.DefaultLoadOptions()
)

func main() {
	root := &cobra.Command{
		Use:           "heifloader",
		Short:         "Decode HEIF/HEIC images into GPU-ready RGBA buffers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to the TOML config file")
	root.PersistentFlags().BoolVar(&opts.FlipY, "flip-y", false, "store the bottom row first")
	root.PersistentFlags().BoolVar(&opts.AsNormalMap, "normal-map", false, "remap (r,g,b,a) to (0xFF,g,g,r)")

	root.AddCommand(decodeCmd(), watchCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		core.LogError("%s", err)
		os.Exit(1)
	}
}

func newEngine() (*engine.Engine, error) {
	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		core.SetLogOutput(f)
	}
	codec, err := libheif.New()
	if err != nil {
		return nil, err
	}
	e, err := engine.New(cfg, codec)
	if err != nil {
		return nil, err
	}
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	return e, nil
}

func decodeCmd() *cobra.Command {
	var out, format string

	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode a HEIF file and write it as PNG or BMP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			defer e.Shutdown()

			res := <-e.LoadFromFileAsync(cmd.Context(), args[0], opts)
			if res.Err != nil {
				if heif.IsRetryable(res.Err) {
					return fmt.Errorf("could not read input: %w", res.Err)
				}
				return res.Err
			}
			core.LogInfo("decoded %s: %dx%d in %.2fms", args[0], res.Image.Width, res.Image.Height, core.MetricsDecodeTime())

			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "." + format
			}
			return writeImage(out, format, res.Image)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to the input name with the format extension)")
	cmd.Flags().StringVarP(&format, "format", "f", "png", "output format: png or bmp")
	return cmd
}

func writeImage(path, format string, img *heif.PixelImage) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case "png":
		err = png.Encode(f, img.NRGBA())
	case "bmp":
		err = bmp.Encode(f, img.NRGBA())
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}
	core.LogInfo("wrote %s", path)
	return f.Close()
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Load every HEIF asset and reload them as they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			defer e.Shutdown()

			am := e.AssetManager()
			for _, asset := range am.Assets(metadata.ResourceTypeImage) {
				loadAsset(e, asset.Name)
			}

			// signal channel to capture system calls
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
			defer stop()

			for {
				select {
				case name, ok := <-am.Reloads():
					if !ok {
						return nil
					}
					loadAsset(e, name)
				case <-ctx.Done():
					decodes, failures := core.MetricsDecodes()
					core.LogInfo("%d decodes (%d failed), %.2fms average", decodes, failures, core.MetricsDecodeTime())
					return nil
				}
			}
		},
	}
}

func loadAsset(e *engine.Engine, name string) {
	tex, err := e.LoadAsset(name, opts)
	if err != nil {
		core.LogError("failed to load %s: %s", name, err)
		return
	}
	core.LogInfo("texture %s ready: %dx%d, %d mip levels, generation %d", tex.Name, tex.Width, tex.Height, len(tex.Mips), tex.Generation)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the linked libheif version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("libheif", libheif.Version())
		},
	}
}
