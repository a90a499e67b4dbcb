/*
Package models defines the stored entities and the request bodies of the API.

Every entity is stored in its own table partitioned by user id; the key schemas are
registered with package registry from init().
*/
package models
