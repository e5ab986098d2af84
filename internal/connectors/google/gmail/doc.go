// Package gmail registers Gmail inbox watches through users.watch.
package gmail
