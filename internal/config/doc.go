// Package config manages the updater settings stored in updater.yaml next to
// the updater executable. Every setting can also come from the environment
// (CHATTERINO_UPDATER_<KEY>) or a command-line flag bound by the cli package;
// flags win over the environment, which wins over the file.
package config
