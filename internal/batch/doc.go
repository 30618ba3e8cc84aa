// Package batch reads batch files listing documents to pre-translate.
package batch
