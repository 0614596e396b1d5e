// Package store provides the data-source layer of the FAQ service.
//
// It defines the source abstractions for the document index, the events
// calendar, and the FAQ catalog, together with concrete adapters for local
// snapshot files, the Shopify Storefront API, and RSS feeds.
package store
