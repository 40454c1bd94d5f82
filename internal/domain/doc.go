// Package domain contains the core business entities, value objects, and
// domain errors of the content backend: users, posts, categories and the
// principal derived from a verified token. It is independent of any specific
// infrastructure or delivery mechanism.
package domain
