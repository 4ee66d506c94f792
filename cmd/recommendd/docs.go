package main

// General API documentation for swaggo annotations. The repository ships
// only the no-op httpapi.MountSwagger (built without the swagger tag); it
// has no generated docs package and no swagger-tagged MountSwagger.
//
// @title           recommendd API
// @version         1.0
// @description     Hardware-aware model recommendation API for a desktop AI workstation configurator.
//
// @contact.name   recommendd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
