// Package security builds TLS configurations for the transcription sidecar
// client and the HTTP API server from file-based settings.
//
//	tls:
//	  ca_file: /etc/asrkit/ca.pem
//	  cert_file: /etc/asrkit/cert.pem
//	  key_file: /etc/asrkit/key.pem
package security
