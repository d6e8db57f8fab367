package main

import (
	"fmt"
	"os"

	"github.com/mtolib/mtolib-go/maxtree"
	"github.com/mtolib/mtolib-go/mtlog"
	"github.com/mtolib/mtolib-go/objects"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath   string
		imagePath    string
		width        int16
		height       int16
		connName     string
		bgVariance   float64
		gain         float64
		moveFactor   float64
		minDistance  float64
		verbosity    int
		snapshotPath string
		writeOnly    bool
	)

	cmd := &cobra.Command{
		Use:   "mtolib",
		Short: "Run the max-tree object-detection pipeline over a raw float32 image",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			if imagePath != "" {
				cfg.Image.Path = imagePath
			}
			if width != 0 {
				cfg.Image.Width = width
			}
			if height != 0 {
				cfg.Image.Height = height
			}
			if connName != "" {
				cfg.Connectivity = connName
			}
			if snapshotPath != "" {
				cfg.SnapshotPath = snapshotPath
			}
			if cmd.Flags().Changed("bg-variance") {
				cfg.Parameters.BgVariance = bgVariance
			}
			if cmd.Flags().Changed("gain") {
				cfg.Parameters.Gain = gain
			}
			if cmd.Flags().Changed("move-factor") {
				cfg.Parameters.MoveFactor = moveFactor
			}
			if cmd.Flags().Changed("min-distance") {
				cfg.Parameters.MinDistance = minDistance
			}
			if cmd.Flags().Changed("verbosity") {
				cfg.Parameters.VerbosityLevel = verbosity
			}

			return run(cfg, writeOnly)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&imagePath, "image", "", "path to a raw little-endian float32 image")
	flags.Int16Var(&width, "width", 0, "image width in pixels")
	flags.Int16Var(&height, "height", 0, "image height in pixels")
	flags.StringVar(&connName, "connectivity", "", `neighbourhood: "4", "8", or "12"`)
	flags.Float64Var(&bgVariance, "bg-variance", 0, "background noise variance")
	flags.Float64Var(&gain, "gain", 0, "detector gain")
	flags.Float64Var(&moveFactor, "move-factor", 0, "object-marker move factor (0 disables moving)")
	flags.Float64Var(&minDistance, "min-distance", 0, "minimum normalized distance for significance")
	flags.IntVar(&verbosity, "verbosity", 0, "log verbosity level")
	flags.StringVar(&snapshotPath, "snapshot", "", "path to read/write a cached tree snapshot")
	flags.BoolVar(&writeOnly, "write-snapshot", false, "write the snapshot and exit without running detection")

	return cmd
}

func connectivityByName(name string) (maxtree.Connectivity, error) {
	switch name {
	case "", "4":
		return maxtree.Conn4, nil
	case "8":
		return maxtree.Conn8, nil
	case "12":
		return maxtree.Conn12, nil
	default:
		return maxtree.Connectivity{}, fmt.Errorf("mtolib: unknown connectivity %q", name)
	}
}

func run(cfg Config, writeOnly bool) error {
	log := mtlog.New(cfg.Parameters.VerbosityLevel)

	if cfg.Image.Path == "" {
		return fmt.Errorf("mtolib: no image path given (set image.path in the config or pass --image)")
	}

	img, err := loadRawImage(cfg.Image.Path, cfg.Image.Width, cfg.Image.Height)
	if err != nil {
		return err
	}

	conn, err := connectivityByName(cfg.Connectivity)
	if err != nil {
		return err
	}

	tree, err := buildOrLoadTree(img, conn, cfg.SnapshotPath, log)
	if err != nil {
		return err
	}

	if writeOnly {
		return writeSnapshotTo(cfg.SnapshotPath, tree, log)
	}

	test, err := objects.NewTest4(cfg.Parameters.Alpha, cfg.Parameters.MinDistance)
	if err != nil {
		return err
	}

	sel, result, err := objects.DetectSelector(tree, cfg.Parameters, test)
	if err != nil {
		return err
	}

	log.Detail(0, "detection complete", map[string]interface{}{
		"significant": result.NumSignificantNodes,
		"objects":     result.NumObjects,
		"nested":      result.NumObjectsNested,
	})

	fmt.Printf("significant nodes: %d\n", result.NumSignificantNodes)
	fmt.Printf("objects: %d (nested: %d)\n", result.NumObjects, result.NumObjectsNested)

	catalog := objects.NewCatalog(sel)
	fmt.Printf("catalogued: %d\n", catalog.Len())

	return nil
}

func buildOrLoadTree(img maxtree.Image, conn maxtree.Connectivity, snapshotPath string, log *mtlog.Logger) (*maxtree.Tree, error) {
	if snapshotPath != "" {
		if f, err := os.Open(snapshotPath); err == nil {
			defer f.Close()
			tree, err := maxtree.ReadSnapshot(f, img)
			if err == nil {
				log.Detail(0, "loaded tree from snapshot", map[string]interface{}{"path": snapshotPath})
				return tree, nil
			}
			log.Warn("snapshot unusable, rebuilding", map[string]interface{}{"path": snapshotPath, "error": err.Error()})
		}
	}

	tree, err := maxtree.Build(img, conn)
	if err != nil {
		return nil, err
	}

	if snapshotPath != "" {
		if werr := writeSnapshotTo(snapshotPath, tree, log); werr != nil {
			log.Warn("could not cache snapshot", map[string]interface{}{"path": snapshotPath, "error": werr.Error()})
		}
	}

	return tree, nil
}

func writeSnapshotTo(path string, tree *maxtree.Tree, log *mtlog.Logger) error {
	if path == "" {
		return fmt.Errorf("mtolib: no snapshot path given")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := maxtree.WriteSnapshot(f, tree); err != nil {
		return err
	}
	log.Detail(0, "wrote snapshot", map[string]interface{}{"path": path})
	return nil
}
