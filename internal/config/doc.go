// Package config provides configuration management for the podcast tools.
//
// This package handles:
//   - Loading settings from a JSON file through viper
//   - ULTRASCHALL_* environment overrides
//   - Default configuration values
//   - Conversion to audio.TagConfig
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Checks for updates once a day
//	// Keeps properties in ~/.config/ultraschall/properties.json
//	// Leaves frames of empty property fields alone
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // Defaults are used if the file doesn't exist
//	}
//
// # Environment
//
// Every key can be overridden from the environment:
//
//	ULTRASCHALL_LOG_LEVEL=debug ULTRASCHALL_PROPERTY_STORE=sqlite ultraschall-tag update-check
//
// # Saving Settings
//
//	settings.UpdateInterval = 12 * time.Hour
//	err := settings.Save(config.DefaultPath())
package config
