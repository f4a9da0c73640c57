/*
Package config resolves the build configuration for phpstatic.

	            +---------------+
	            |  BuildConfig  |
	            |  (resolved)   |
	            +-------+-------+
	                    |
	        Defaults + Overrides (file, flags)
	                    |
	   +------------+-----+------+------------+
	   |            |            |            |
	+--+-------+ +--+-------+ +--+-------+ +--+-------+
	|   TOML   | |   HCL    | |   YAML   | |   JSON   |
	|  Parser  | |  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+ +----------+

🎯 Purpose:
- Provide the built-in defaults
- Load an optional configuration file from the project root
- Merge defaults, file values and flag values into one immutable BuildConfig

🔄 Flow:
1. Load finds phpstatic.toml (or .hcl/.yaml/.yml/.json, or the legacy PHPStaticRender.toml)
2. The registered Parser for the extension returns a File (Overrides + replacements)
3. Resolve layers Overrides on top of Defaults, later sources winning

📝 Notes:
- A missing file is not an error: Load returns (nil, nil)
- A malformed file is an error; callers warn and continue with defaults
- The [replace] pairs keep document order in every format
- The output folder is always part of the ignore set after Resolve

🔍 Example:

	f, err := config.Load(ctx, root, "")
	if err != nil {
		logger.Warningf("using defaults: %v", err)
	}
	var overrides []config.Overrides
	if f != nil {
		overrides = append(overrides, f.Overrides)
	}
	cfg := config.Resolve(config.Defaults(), overrides...)
*/
package config
