// Package apkcert obtains the DER-encoded signing certificate embedded in a
// signed Android package.
//
// Two external toolchains are supported, tried in priority order:
//
//  1. apksigner from the Android SDK build-tools, which verifies the package
//     and prints its certificate chain in PEM form. Most reliable, covers all
//     APK signature scheme versions.
//  2. The raw PKCS#7 signature block under META-INF/, converted to a
//     certificate with openssl. Works anywhere openssl is installed but only
//     sees v1 (JAR) signatures.
//
// The chain aggregates both diagnostics when every strategy fails so an
// operator can tell which tooling is missing. Tool discovery is configurable;
// the defaults cover PATH lookup and the usual SDK install locations with the
// lexically greatest build-tools version preferred. Every tool invocation
// runs under a deadline.
package apkcert
