// Package driven defines the outbound ports of the retrieval engine:
// the interfaces infrastructure adapters implement so that core
// services stay free of provider and storage specifics.
package driven
