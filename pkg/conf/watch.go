// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package conf

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch monitors the configuration file and calls apply with a freshly parsed
// configuration each time the file is written. Editors replace files on save,
// so the watch is set on the parent directory and events are filtered by name.
func Watch(ctx context.Context, configFile string, apply func(*Config)) error {

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(configFile)
	if err != nil {
		watcher.Close()
		return err
	}
	err = watcher.Add(filepath.Dir(abs))
	if err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		log.Printf("Monitoring configuration file: %s", abs)
		for {
			select {
			case <-ctx.Done():
				log.Println("Configuration watcher stop requested.")
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != abs {
					continue
				}
				if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
					log.Printf("Configuration file modified: %s", event.Name)
					c, err := Init(abs)
					if err != nil {
						log.Errorf("Error reloading configuration: %v", err)
						continue
					}
					apply(c)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Error watching: %v", err)
			}
		}
	}()

	return nil
}
