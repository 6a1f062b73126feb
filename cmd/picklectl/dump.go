package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/common/expfmt"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/application"
	"github.com/lk2023060901/danmu-garden-ui/internal/archive"
	"github.com/lk2023060901/danmu-garden-ui/internal/pickle"
	"github.com/lk2023060901/danmu-garden-ui/internal/serializer"
	"github.com/lk2023060901/danmu-garden-ui/internal/ui/window"
	zlog "github.com/lk2023060901/danmu-garden-ui/pkg/log"
)

func runDump(ctx context.Context, app *application.Application, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("dump")
	format := fs.StringP("format", "f", serializer.FormatJSON, "export format: json, cbor or proto")
	showMetrics := fs.Bool("metrics", false, "print collected metrics to stderr (requires metrics.enable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("dump expects exactly one archive path, got %d", fs.NArg())
	}
	ser, err := serializer.ForFormat(*format)
	if err != nil {
		return err
	}

	sections, err := readArchive(app, fs.Arg(0))
	if err != nil {
		return err
	}

	reg := window.NewRegistry(window.WithCodecOptions(window.WithPickleOptions(app.PickleOptions()...)))
	if err := reg.Restore(sections); err != nil {
		return err
	}

	export := pickle.Tuple(lo.Map(reg.Windows(), func(w *window.Window, _ int) pickle.Value {
		return w.Export()
	})...)
	out, err := ser.Marshal(export.Interface())
	if err != nil {
		return errors.Wrapf(err, "export as %s", ser.Name())
	}
	if _, err := stdout.Write(out); err != nil {
		return err
	}
	if ser.Name() == serializer.FormatJSON {
		_, _ = io.WriteString(stdout, "\n")
	}
	zlog.Ctx(ctx).Debug("archive dumped", zap.Int("windows", reg.Len()), zap.String("format", ser.Name()))

	if *showMetrics {
		return writeMetrics(app, stderr)
	}
	return nil
}

func readArchive(app *application.Application, path string) ([]archive.Section, error) {
	opts, release, err := archiveOptions(app)
	if err != nil {
		return nil, err
	}
	defer release()

	if path == "-" {
		return archive.Decode(os.Stdin, opts...)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return archive.Decode(f, opts...)
}

func writeMetrics(app *application.Application, w io.Writer) error {
	gatherer := app.Gatherer()
	if gatherer == nil {
		_, err := io.WriteString(w, "# metrics disabled, set metrics.enable to true\n")
		return err
	}
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
