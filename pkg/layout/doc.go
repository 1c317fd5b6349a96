/*
Package layout describes page trees declaratively and builds them.

A layout document is YAML (or JSON). Every node has an id and a kind from
the registry; keys the Definition does not know are passed to the kind as
props:

	id: checkout
	kind: page
	children:
	  - id: top
	    kind: feedback
	  - id: form
	    behaviors:
	      - kind: redirect
	        target: oops
	    children:
	      - id: errors
	        kind: feedback
	        fence: true
	        filter:
	          min_level: warn
	      - id: name
	        kind: label
	        text: Name

Collector scopes and origin filters are page-relative paths and are
resolved after the whole tree is built.
*/
package layout
