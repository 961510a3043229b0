// Package config loads fileshare settings from a file and the environment.
package config
