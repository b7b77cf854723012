// Package config loads bojq's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/bojq/config.toml
//  3. If the file doesn't exist, use Default()
//  4. If the file exists but fields are missing or blank, use defaults
//
// # Fields
//
//	api_url = "http://127.0.0.1:8080"   # backend base URL
//	poll_interval_seconds = 30          # periodic queue refresh
//	request_timeout_seconds = 0         # 0 = no client timeout
//	run_next_schedule = "0 9 * * *"     # optional cron spec for run-next
//	data_dir = "~/.local/share/bojq"    # log, archive, scheduler lock
//	download_dir = "."                  # saved solutions
//	file_extension = "java"             # BOJ_<id>.<ext>
//	log_level = "info"
//	log_format = "text"                 # text or json
//
// Values are trimmed and paths are tilde-expanded and made absolute.
//
// # Validation
//
// Load rejects a non-positive poll interval, a negative timeout, a
// run_next_schedule that robfig/cron cannot parse as a standard five-field
// expression, and log formats other than text or json. A missing file is not
// an error.
package config
