// Package config provides configuration structures and utilities for pagewalk.
//
// Settings are layered: NewConfig defaults, the optional .pagewalk YAML
// file (per-source cookies, headers and limits), environment variables
// (PAGEWALK_API_KEY, PAGEWALK_ENDPOINT, PAGEWALK_PROXY, optionally read
// from a .env file) and finally CLI flags. Data and source directories
// follow the XDG Base Directory Specification.
package config
