package internal

// Version is the linguist release version
const Version = "0.3.0"
