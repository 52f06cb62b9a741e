// Package config loads treebridge configuration.
//
// The configuration lives in treebridge.yaml (or treebridge.yml, or
// treebridge.json) in the working directory. Every field is optional.
//
// # Configuration File Structure
//
//	bridge:
//	  mode: frame-sync        # push | frame-sync
//	  defaultTag: g
//	  frameInterval: 16ms
//	producer:
//	  url: ws://localhost:8080/tree
//	  encoding: binary        # json | binary
//	  handshakeTimeout: 10s
//	metrics:
//	  addr: ":9090"
//	  namespace: treebridge
//	log:
//	  level: debug
//	  format: json
//	tracing:
//	  tracerName: github.com/vango-dev/treebridge
//	s3:
//	  region: us-east-1
//	  endpoint: http://localhost:9000
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
