// Package event models raw room events as delivered by the Matrix
// client-server API and resolves the edit, thread, and reply relations
// carried in their content metadata.
package event
