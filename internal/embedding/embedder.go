package embedding

// Preparer is implemented by embedders that must see the corpus before embedding.
type Preparer interface {
	Prepare(corpus []string) error
}
