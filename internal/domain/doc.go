// Package domain defines core data models, interfaces and sentinel errors
// shared across the app. It contains plain types (wire/state) and contracts
// (interfaces) only.
package domain
