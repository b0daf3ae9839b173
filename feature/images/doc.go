// Package images serves the local image cache over HTTP.
//
// # HTTP Endpoints
//
//   - GET /images/resolve?url= : Resolve a remote image, downloading it on first use.
//   - GET /images/files/:name : Serve a cached file by its cache file name.
//     This is the only public path; the rest requires the API key.
//   - GET /images/stats : Entry counts per state.
//   - DELETE /images/failed : Make failed downloads retryable.
package images
