// Package infra contains technical adapters such as structured logging and
// metrics exporters. These packages depend only on interfaces defined in the
// core packages.
package infra
