// Command dcmvolume assembles a folder of single-frame DICOM files into a raw
// 8-bit volume.
//
//	dcmvolume [-pattern *.dcm] [-workers N] [-series GLOB] [-list] [-out vol.raw] DIR
//	dcmvolume -synth N DIR
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	dicom "github.com/odincare/dcmvolume"
	"github.com/odincare/dcmvolume/dicomlog"
)

var (
	pattern  = flag.String("pattern", "*", "Glob matched against file base names")
	workers  = flag.Int("workers", 0, "Concurrent decodes, 0 uses "+dicom.EnvWorkers+" or the CPU count")
	series   = flag.String("series", "", "Series description pattern, required when the folder holds several series")
	list     = flag.Bool("list", false, "List the series and exit")
	out      = flag.String("out", "", "Write raw voxels (x fastest, then y, then z) to this file")
	synth    = flag.Int("synth", 0, "Write a synthetic series of N slices into DIR and exit")
	logLevel = flag.String("log", "", "Log level: debug, info, warn, error or none")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] DIR\n", filepath.Base(os.Args[0]))
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	dir := flag.Arg(0)

	cfg := dicom.ConfigFromEnv()
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if err := dicomlog.SetLevelByName(cfg.LogLevel); err != nil {
		logrus.Fatal(err)
	}

	var err error
	if *synth > 0 {
		err = writeSynthetic(dir, *synth)
	} else {
		err = run(dir, cfg)
	}
	if err != nil {
		logrus.Fatalf("%+v", err)
	}
}

func writeSynthetic(dir string, n int) error {
	p := dicom.SeriesParams{
		Slices:           n,
		Rows:             64,
		Cols:             64,
		PatientName:      "PHANTOM^SPHERE",
		StudyDescr:       "SYNTHETIC",
		StudyDate:        "20200101",
		SeriesTime:       "120000",
		SeriesDescr:      "sphere",
		BodyPartExamined: "HEAD",
		PixelSpacing:     0.5,
		SliceThickness:   1,
	}
	files, err := p.Synthesize()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WithStack(err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Data, 0644); err != nil {
			return errors.Wrapf(err, "write %s", f.Name)
		}
	}
	logrus.Infof("wrote %d slices to %s", len(files), dir)
	return nil
}

func readDir(dir string, g glob.Glob) ([]dicom.File, error) {
	var files []dicom.File
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !g.Match(d.Name()) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, dicom.File{Name: path, Data: data})
		return nil
	})
	return files, errors.Wrapf(err, "read %s", dir)
}

func run(dir string, cfg dicom.Config) error {
	g, err := glob.Compile(*pattern)
	if err != nil {
		return errors.Wrapf(err, "bad -pattern %q", *pattern)
	}
	files, err := readDir(dir, g)
	if err != nil {
		return err
	}
	logrus.Infof("%d files match %q", len(files), *pattern)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := dicom.LoadOptionsFromConfig(cfg)
	opts.Progress = func(ratio float64) {
		logrus.Debugf("decoded %3.0f%%", ratio*100)
	}
	if *series != "" {
		opts.Query = &dicom.SeriesQuery{SeriesDescr: *series}
	}
	loader := &dicom.DicomLoader{Options: opts}

	if *list {
		c, err := loader.ReadSeries(ctx, files)
		if err != nil {
			return err
		}
		defer c.Release()
		for _, d := range c.Descriptions() {
			fmt.Println(d)
		}
		return nil
	}

	vol, err := loader.Load(ctx, files)
	if err != nil {
		return err
	}
	fmt.Printf("volume %dx%dx%d, box %.2fx%.2fx%.2f mm\n",
		vol.XDim, vol.YDim, vol.ZDim, vol.BoxSize.X, vol.BoxSize.Y, vol.BoxSize.Z)
	if *out != "" {
		if err := os.WriteFile(*out, vol.Data, 0644); err != nil {
			return errors.Wrapf(err, "write %s", *out)
		}
	}
	return nil
}
