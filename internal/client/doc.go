// Package client talks to the download backend: it serializes a Request,
// performs the single POST, keeps the raw body and decodes it into a Reply.
package client
