// Package dev implements the wayfind watch loop: a polling file
// watcher over the routes directory, a websocket hub that tells
// connected clients to reload, and the HTTP server tying them
// together.
package dev
