/*
Package dsl provides a fluent builder for page layouts, as an alternative to
YAML or Loam documents. It is useful for tests, examples and pages generated
at runtime.

Example usage:

	b := dsl.New()

	b.Page("checkout").
		Feedback("top").End().
		Container("address").
			Feedback("errors").Fence().End().
			Label("street", "Street").
		End().
		Redirect("oops")

	b.Page("oops").
		Feedback("feedback").End().
		Label("sorry", "Something went wrong")

	source, err := b.Build()
	// ... pass source to arbor.New(...)
*/
package dsl
