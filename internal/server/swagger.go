package server

//go:generate swag init -g internal/server/server.go -o docs

// @title PrivaLens API
// @version 0.1
// @description Privacy and compliance scanning API: start scans, poll their
// @description progress, read results and compare runs over time.
// @contact.name PrivaLens Maintainers
// @contact.url https://github.com/privalens/privalens
// @BasePath /
