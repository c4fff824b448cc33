// Package category resolves download allow-lists from category names and
// extensions.
//
// Built-in categories (images, documents, archives, audio, video, code,
// midi, arc and all) can be extended with a versioned YAML file:
//
//	version: 1
//	categories:
//	  ebooks: [.epub, .mobi, .azw3]
//	  images: [.png, .jpg, .avif]   # shadows the built-in
//
// Resolution happens once, before a crawl starts; the crawler only ever
// sees the resulting extension set.
package category
