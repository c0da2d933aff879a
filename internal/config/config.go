// Package config holds the CLI's build-time defaults: the output file
// suffix and the default assembly flavour. There is no config file
// format; three scalar flags don't need one.
package config

// Default is the configuration the CLI starts from before flags
// override it.
var Default = Config{
	OutputSuffix: ".s",
	Flavour:      "gnu64",
}

// Config holds the CLI's resolved build options.
type Config struct {
	OutputSuffix string
	Flavour      string
}
