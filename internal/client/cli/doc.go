// Package cli implements maillistctl, the operator command line.
//
// Admin commands work directly on the subscriber store and the CSV mirror,
// using the server configuration (-d, -m, SMTP and S3 settings):
//
//	migrate          apply pending schema migrations
//	list             print every subscriber
//	rebuild-mirror   rewrite the CSV mirror from the store
//	publish-mirror   rebuild the mirror and upload a snapshot to S3
//	send-test [addr] send the fixed code 123456 through the notifier
//
// API commands call a running server over gRPC (-e, -r):
//
//	signup <email>
//	verify <email> <code>
//	unsubscribe <email>
package cli
