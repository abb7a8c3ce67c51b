// Package config defines followerscan's runtime options, their defaults and
// validation, and the optional .followerscan YAML file that carries the
// session cookie.
package config
