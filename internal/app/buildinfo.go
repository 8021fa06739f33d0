package app

// Version is the tool version reported at startup and in the User-Agent.
const Version = "0.3.0"
