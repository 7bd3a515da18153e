package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile  = flag.String("log-file", "", "Write logs to this file as well")
	flagTuple    = flag.Bool("tuple", false, "Split vertices by (position, normal, texcoord) instead of position")
	flagStrict   = flag.Bool("strict", false, "Fail on mixed or unknown materials")
	flagMissing  = flag.String("missing", "", "Missing normal/texcoord policy: zero or fail")
	flagEncoding = flag.String("encoding", "", "Charset of object and material names: utf-8 or euc-kr")
	flagOutDir   = flag.String("out-dir", "", "Directory for flattened scenes")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments: the command and its arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagTuple {
		cfg.Import.KeyMode = "tuple"
	}
	if *flagStrict {
		cfg.Import.StrictMaterials = true
	}
	if *flagMissing != "" {
		cfg.Import.MissingAttribute = *flagMissing
	}
	if *flagEncoding != "" {
		cfg.Import.NameEncoding = *flagEncoding
	}
	if *flagOutDir != "" {
		cfg.Output.Directory = *flagOutDir
	}
}
