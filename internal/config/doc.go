// Package config handles configuration loading for the solon settings tools.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. The format is chosen by extension: ".toml" is TOML, anything
// else is YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${SOLON_DATA}/settings.db"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Duration Parsing
//
// database.save_interval uses the same shorthand operators type into
// timedelta settings:
//
//	database:
//	  save_interval: "1h30m"
//
// Supported units: w, d, h, m, s. The default is five minutes.
//
// # Configuration Sections
//
// Persistence:
//
//	database:
//	  driver: sqlite         # or sqlite3 (cgo)
//	  path: ./solon.db
//	  enabled: true          # false logs saves instead of writing them
//	  save_interval: 5m
//
// Logging:
//
//	logging:
//	  level: info            # debug, info, warn, error
//	  format: text           # text (colorized) or json
//
// Guild snapshot for resolving members, channels, roles and emoji:
//
//	guilds:
//	  path: ./guilds.yaml
//
// Cog settings schemas. Types are registered names or expressions like
// "[]Role" and "map[int]Role"; defaults are serialized text:
//
//	cogs:
//	  moderation:
//	    fields:
//	      prefix: {type: str, default: "!"}
//	      mods: {type: "[]Role", default: ""}
//	      thresholds: {type: "map[int]Role", default: ""}
//
// # Validation
//
// Load validates the result and returns the first failure:
//
//   - database.path is required
//   - database.driver, logging.level and logging.format must be known values
//   - cog names may not contain dots; field names must be lower case and typed
package config
