package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/application"
	"github.com/lk2023060901/danmu-garden-ui/internal/archive"
	"github.com/lk2023060901/danmu-garden-ui/internal/ui/window"
	zlog "github.com/lk2023060901/danmu-garden-ui/pkg/log"
	"github.com/lk2023060901/danmu-garden-ui/pkg/util/retry"
)

func demoRegistry() (*window.Registry, error) {
	hud, err := window.New("hud",
		window.Rect{X: 10, Y: 20, W: 300, H: 150},
		window.FlagBorder|window.FlagTitle,
		window.Vec2i{X: 1920, Y: 1080})
	if err != nil {
		return nil, err
	}
	hud.Show()

	menu, err := window.New("main_menu",
		window.Rect{X: 760, Y: 340, W: 400, H: 400},
		window.FlagBorder|window.FlagMovable|window.FlagTitle|window.FlagClosable,
		window.Vec2i{X: 1920, Y: 1080},
		window.WithResizeMask(window.AnchorXCenter|window.AnchorYCenter))
	if err != nil {
		return nil, err
	}

	reg := window.NewRegistry()
	for _, w := range []*window.Window{hud, menu} {
		if err := reg.Add(w); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func runDemo(ctx context.Context, app *application.Application, args []string, stdout, _ io.Writer) error {
	fs := newFlagSet("demo")
	output := fs.StringP("output", "o", "state.pfui", `output archive path, "-" for stdout`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg, err := demoRegistry()
	if err != nil {
		return err
	}
	sections, err := reg.Snapshot()
	if err != nil {
		return err
	}

	opts, release, err := archiveOptions(app)
	if err != nil {
		return err
	}
	defer release()
	data, err := archive.Marshal(sections, opts...)
	if err != nil {
		return err
	}

	if *output == "-" {
		_, err = stdout.Write(data)
		return err
	}
	err = retry.Do(ctx, func() error {
		return writeFileAtomic(*output, data)
	}, retry.Attempts(3))
	if err != nil {
		return errors.Wrapf(err, "write %s", *output)
	}
	zlog.Ctx(ctx).Info("archive written",
		zap.String("path", *output), zap.Int("windows", len(sections)), zap.Int("bytes", len(data)))
	return nil
}

// writeFileAtomic 先写同目录下的临时文件再改名，避免留下写了一半的存档。
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err != nil {
		return retry.Unrecoverable(err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
