/*
Package domain contains the core domain models of the gamebook mapper.

It defines the records that flow between the notation parser, the edge store, the
classifier and the path finder. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Edge: One recorded page-to-page transition (or an annotation when To is empty).
  - Role: The narrative role derived for a page (Start, End, Dead, Required, ...).
  - NodeView / EdgeView: Classified records handed to presentation adapters.
  - Session: The persisted snapshot of an edge log and its required set.
*/
package domain
