// Package output renders CLI results for linkgate-cli.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: tabular rendering, with wide mode for extra columns
//   - json.go: indented JSON
//   - yaml.go: YAML that follows the json field names
//
// Table mode is for humans; json and yaml are for scripts.
package output
