// picklectl 用于生成与查看窗口状态存档。
//
//	picklectl demo [-o state.pfui]
//	picklectl dump [-f json|cbor|proto] [--metrics] state.pfui
//
// 所有子命令都接受 --config <path>，配置项见 application.Config。
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-garden-ui/application"
	"github.com/lk2023060901/danmu-garden-ui/internal/archive"
	"github.com/lk2023060901/danmu-garden-ui/internal/compressor"
	zlog "github.com/lk2023060901/danmu-garden-ui/pkg/log"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, app *application.Application, args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{name: "demo", usage: "write an archive holding the sample hud and main_menu windows", run: runDemo},
	{name: "dump", usage: "decode an archive and export its windows", run: runDump},
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		return nil
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}

	app := application.New(application.WithArgs(args[1:]))
	if err := app.Run(); err != nil {
		return err
	}
	defer app.Close()

	undo, err := maxprocs.Set(maxprocs.Logger(zlog.S().Debugf))
	if err != nil {
		zlog.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}
	defer undo()

	// 沿用调用方 ctx 的取消语义，只借用意图上下文里的 Logger 字段。
	intentCtx, span := zlog.NewIntentContext("picklectl", cmd.name)
	defer span.End()
	ctx = context.WithValue(ctx, zlog.CtxLogKey, zlog.Ctx(intentCtx))
	ctx = zlog.WithModule(ctx, "picklectl."+cmd.name)
	return cmd.run(ctx, app, args[1:], stdout, stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: picklectl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-6s %s\n", c.name, c.usage)
	}
}

// newFlagSet 创建子命令的 FlagSet，并声明由 application 解析的 --config。
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("picklectl "+name, pflag.ContinueOnError)
	fs.String("config", "", "path to config file (default ./config.yaml, env "+application.EnvConfigFilePath+")")
	return fs
}

// archiveOptions 返回按配置生成的存档选项，release 用于释放其中的压缩器。
func archiveOptions(app *application.Application) ([]archive.Option, func(), error) {
	opts, err := app.ArchiveOptions()
	if err != nil {
		return nil, nil, err
	}
	release := func() {}
	if zc, ok := archive.NewOptions(opts...).Compressor.(*compressor.ZstdCompressor); ok {
		release = zc.Close
	}
	return opts, release, nil
}
