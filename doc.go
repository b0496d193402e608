/*
Package lakefs_client provides a typed interface to the experimental open table format (OTF)
endpoints of the lakeFS REST API.

The main entry point is APIClient, created by NewAPIClient from a ClientConfig holding the server
address, credentials (access key pair, JWT or session cookies), TLS and timeout settings, and
request/response hooks. Operations are grouped like the lakeFS API tags: ExperimentalApi lists the
supported table diff types and computes table diffs between two refs, ConfigApi reports the server
version.

Every operation comes in two forms. The XxxWithHttpInfo form returns a *core.AsyncResult handle and
accepts per-call options such as WithAsync, WithHttpInfo, WithoutPreload and WithRequestTimeout. The
Xxx form waits for the result and returns the decoded model.
*/
package lakefs_client
