package storage

var ObjectURL = objectURL
