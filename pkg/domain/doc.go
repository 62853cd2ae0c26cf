/*
Package domain contains the core models of the tabi travel planner.

It defines the request a traveller submits, the context gathered about the
destination, the generated plan and the transient workflow state that ties them
together. This package is kept pure and free of external dependencies like I/O
or persistence, following Hexagonal Architecture principles.

# Key Entities

  - TripRequest: The immutable constraints submitted by the presentation layer.
  - ContextBundle: Background text about the destination and where it came from.
  - TripPlan: Candidate itineraries plus optional supplementary advice.
  - State: The workflow snapshot (Start, Researching, Planning, Advising, Done, Failed).
*/
package domain
