/*
Package api serves the earn-up REST API.

NewRouter mounts the todo, task list, reward and account routes on a chi router behind
request-id, recoverer, zap request logging, CORS and authentication middleware. The same
router runs behind API Gateway (through the chi Lambda adapter) and as a local HTTP server.

Lists are returned as {"items": [...]} and single objects as {"item": {...}}. Errors are
returned as {"error": "..."} with the status chosen by the error's kind.
*/
package api
