package usecase

// TransportMessage is exported for testing
var TransportMessage = transportMessage
