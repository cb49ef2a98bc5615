// Package httpclient is a small HTTP client for the backend services asrkit
// talks to, such as a faster-whisper sidecar. It builds JSON and multipart
// bodies, retries transient failures through the resilience package and
// returns every failure as an AppError.
//
//	client, _ := httpclient.New(httpclient.Config{
//	    Service: "whisper",
//	    BaseURL: "http://localhost:8387",
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//
//	part, _ := httpclient.FileFromPath("audio", "talk1.mp3")
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/transcribe",
//	    Body:   &httpclient.MultipartBody{Files: []httpclient.FilePart{part}},
//	})
package httpclient
