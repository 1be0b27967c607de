package cli

// NewApp is exported for testing
var NewApp = newApp

// FindTitleConflicts is exported for testing
var FindTitleConflicts = findTitleConflicts
