package main

import (
	"runtime"

	"github.com/xlab/closer"

	"github.com/m1nuz/vulkan-renderer/internal/app"
	"github.com/m1nuz/vulkan-renderer/internal/journal"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	defer closer.Close()

	conf, err := app.ReadConf("settings.conf")
	if err != nil {
		journal.Critical(journal.App, "%v", err)
		closer.Exit(1)
	}

	if err := app.Run(conf); err != nil {
		journal.Critical(journal.App, "%v", err)
		closer.Exit(1)
	}
}
