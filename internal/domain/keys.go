package domain

// KeyPrefix namespaces every key katalog writes to the KV store.
const KeyPrefix = "katalog:"
