package slate

// Version is the slate release version.
const Version = "0.1.0"
