package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watch re-reads the configuration whenever the file at path changes and
// invokes onReload with the fresh config. Edits that fail validation are
// handed to onError and the previous configuration stays in effect.
func Watch(path string, onReload func(*Config), onError func(error)) {
	vpr := viper.New()
	vpr.SetConfigFile(path)

	vpr.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := Load(path)
		if err != nil {
			onError(err)
			return
		}
		onReload(cfg)
	})

	vpr.WatchConfig()
}
