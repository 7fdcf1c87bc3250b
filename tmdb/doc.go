// Package tmdb provides a client for The Movie Database (TMDB) v3 API.
//
// The client exposes the small surface the browsing screens need: a catalog
// listing that switches between the popularity-ranked discover endpoint and
// text search, plus movie, show and season detail lookups.
//
// # Normalization
//
// Movies and shows are returned as a single CatalogItem shape. Show entries
// arrive with name and first_air_date; these are copied into Title and
// ReleaseDate, and every item is tagged with its MediaKind so callers can
// route to the right detail view. Upstream ordering is never changed.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := tmdb.NewClient(tmdb.DefaultBaseURL, apiKey, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	popular, err := client.FetchCatalog(ctx, "", tmdb.KindTV)
//	results, err := client.FetchCatalog(ctx, "dune", tmdb.KindMovie)
//
// # Errors
//
// Any non-2xx response is returned as *APIError; transport failures are
// wrapped. There is no retry or backoff, callers decide how to surface the
// failure.
package tmdb
